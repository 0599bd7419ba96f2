package log

import (
	"context"
	"testing"

	"github.com/graph-gophers/graphql-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type panickingResolver struct{}

func (*panickingResolver) Hello() string {
	panic("something went wrong")
}

func TestPanicLogger(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	opts := []graphql.SchemaOpt{
		graphql.Logger(&PanicLogger{Logger: zap.New(core)}),
	}
	schema := graphql.MustParseSchema(`
		schema { query: Query }
		type Query { hello: String! }
	`, &panickingResolver{}, opts...)

	ctx := WithRequestID(context.Background(), "req-1")
	res := schema.Exec(ctx, "{ hello }", "", nil)
	require.Len(t, res.Errors, 1)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "graphql: panic occurred", entries[0].Message)
	assert.Equal(t, "something went wrong", fields["panic"])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Contains(t, fields["stack"], "goroutine")
}

func TestNew(t *testing.T) {
	l, err := New("debug", "console")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = New("warn", "json")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))

	_, err = New("loud", "json")
	assert.Error(t, err)
}

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestID(ctx))

	id := NewRequestID()
	assert.Len(t, id, 27)
	assert.Equal(t, id, RequestID(WithRequestID(ctx, id)))
}
