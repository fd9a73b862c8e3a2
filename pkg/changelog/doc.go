// Package changelog loads the YAML changelogs hush applies.
//
// A changelog is an ordered list of change sets. Each change set holds
// changes, and optionally the changes that undo it:
//
//	changeSets:
//	  - id: "001"
//	    author: ada
//	    changes:
//	      - sql:
//	          sql: CREATE TABLE users (id INT PRIMARY KEY);
//	    rollback:
//	      - sql:
//	          sql: DROP TABLE users;
//
//	  - id: "002"
//	    author: ada
//	    changes:
//	      - suppressOutput:
//	          startOrStop: START
//	          suppress: EXECUTE
//	      - sql:
//	          sql: INSERT INTO audit VALUES ('backfilled by hand');
//	      - suppressOutput:
//	          startOrStop: STOP
//	          suppress: EXECUTE
//
// Every change has exactly one of sql, suppressOutput or dropForeignKeys.
// suppressOutput changes are validated when the changelog is loaded, so a
// missing startOrStop or suppress parameter is reported before anything
// touches a database.
package changelog
