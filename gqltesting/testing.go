// Package gqltesting runs table-driven GraphQL tests against the gateway schema
// and provides an in-memory REST store to point the schema at.
package gqltesting

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"testing"

	"github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/errors"
	"github.com/nsf/jsondiff"
	"github.com/stretchr/testify/assert"
)

// Test is a GraphQL test case to be used with RunTest(s).
type Test struct {
	Name           string
	Context        context.Context
	Schema         *graphql.Schema
	Query          string
	OperationName  string
	Variables      map[string]interface{}
	ExpectedResult string
	// ExpectedErrors are matched on message, path and extensions. Locations and
	// the wrapped resolver error are ignored.
	ExpectedErrors []*errors.QueryError
	// After runs once the query has executed, e.g. to inspect the store.
	After func(t *testing.T)
}

// RunTests runs the given GraphQL test cases as subtests.
func RunTests(t *testing.T, tests []*Test) {
	t.Helper()
	if len(tests) == 1 {
		RunTest(t, tests[0])
		return
	}

	for i, test := range tests {
		name := test.Name
		if name == "" {
			name = strconv.Itoa(i + 1)
		}
		t.Run(name, func(t *testing.T) {
			t.Helper()
			RunTest(t, test)
		})
	}
}

// RunTest runs a single GraphQL test case.
func RunTest(t *testing.T, test *Test) {
	t.Helper()
	if test.Context == nil {
		test.Context = context.Background()
	}
	result := test.Schema.Exec(test.Context, test.Query, test.OperationName, test.Variables)

	checkErrors(t, test.ExpectedErrors, result.Errors)

	if test.ExpectedResult == "" {
		if result.Data != nil && string(result.Data) != "null" {
			t.Fatalf("got: %s\nwant: null", result.Data)
		}
	} else {
		opts := jsondiff.Options{
			Added:   jsondiff.Tag{Begin: "+++", End: "+++"},
			Removed: jsondiff.Tag{Begin: "---", End: "---"},
			Changed: jsondiff.Tag{Begin: "|||", End: "|||"},
			Indent:  "    ",
		}
		diff, output := jsondiff.Compare([]byte(test.ExpectedResult), result.Data, &opts)
		if diff != jsondiff.FullMatch {
			t.Log("Did not get expected result:\n", output)
			t.Log("Got:", string(result.Data))
			t.Fail()
		}
	}

	if test.After != nil {
		test.After(t)
	}
}

type comparableError struct {
	Message    string
	Path       []interface{}
	Extensions map[string]interface{}
}

func checkErrors(t *testing.T, want, got []*errors.QueryError) {
	t.Helper()
	sortErrors(want)
	sortErrors(got)

	if !assert.Equal(t, toComparable(want), toComparable(got)) {
		t.Log("  Got: \n", formatErrors(got))
		t.FailNow()
	}
}

func toComparable(errs []*errors.QueryError) []comparableError {
	if len(errs) == 0 {
		return nil
	}
	out := make([]comparableError, len(errs))
	for i, err := range errs {
		out[i] = comparableError{Message: err.Message, Path: err.Path, Extensions: err.Extensions}
	}
	return out
}

func formatErrors(errs []*errors.QueryError) string {
	var errorStr string
	for _, err := range errs {
		if err == nil {
			errorStr = errorStr + "(nil)\n"
		} else {
			errorStr = errorStr + formatError(*err)
		}
	}
	return errorStr
}

func formatError(err errors.QueryError) string {
	return fmt.Sprintf(
		`%s
Path: %v
Rule: %s
Resolver: %s
Extensions: %+v
`,
		err.Error(),
		err.Path,
		err.Rule,
		err.ResolverError,
		err.Extensions)
}

func sortErrors(errors []*errors.QueryError) {
	if len(errors) <= 1 {
		return
	}
	sort.Slice(errors, func(i, j int) bool {
		return fmt.Sprintf("%s", errors[i].Path) < fmt.Sprintf("%s", errors[j].Path)
	})
}
