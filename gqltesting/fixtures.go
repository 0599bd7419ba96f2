package gqltesting

// Fixtures returns a small data set shaped like the store's seed database.
//
// User 41 has no position and lists friend 23 twice; user 44 has no company, no
// position and no friends; company 3 has no users.
func Fixtures() map[string][]Record {
	return map[string][]Record{
		"users": {
			{"id": "23", "firstName": "Bill", "lastName": "Gates", "age": 20, "companyId": "1", "positionId": "1",
				"friends": []interface{}{Record{"friendId": "40"}, Record{"friendId": "41"}}},
			{"id": "40", "firstName": "Alex", "lastName": "Chen", "age": 40, "companyId": "2", "positionId": "2",
				"friends": []interface{}{Record{"friendId": "23"}}},
			{"id": "41", "firstName": "Nick", "lastName": "Fury", "age": 35, "companyId": "2",
				"friends": []interface{}{Record{"friendId": "23"}, Record{"friendId": "40"}, Record{"friendId": "23"}}},
			{"id": "44", "firstName": "Sam", "lastName": "Lone", "age": 28},
		},
		"companies": {
			{"id": "1", "name": "Apple", "description": "iphone"},
			{"id": "2", "name": "Google", "description": "search"},
			{"id": "3", "name": "Initech", "description": "TPS reports"},
		},
		"positions": {
			{"id": "1", "title": "Engineer"},
			{"id": "2", "title": "Manager"},
		},
	}
}
