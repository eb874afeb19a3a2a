/*
Package query compiles and runs the page query language.

# Overview

A query selects, orders and windows records from a collection:

	q, err := query.Compile(`SELECT ITEMS 1-5 WHERE "post" in tags AND draft = false ORDER BY date desc`)
	if err != nil {
	    return err
	}
	results, err := q.Run(pages)

Results are (index, record) pairs in filter, sort, window order. Index is
the record's position in the collection passed to Run.

# Grammar

Keywords are case-insensitive. Clauses may appear in any order; a later
SELECT ITEMS or ORDER BY replaces an earlier one.

	SELECT ITEMS n          only the n-th result (1-based)
	SELECT ITEMS n-m        results n through m, inclusive
	ORDER BY field [asc|desc]
	WHERE condition

A condition combines terms with AND and OR (AND binds tighter) and
parentheses:

	field = value           also !=, >, <, >=, <=
	value in field          list membership, or equality for scalars
	value not in field

Values are quoted strings ('single' or "double"), true/false, or numbers.
A bare word that is none of these is a syntax error.

# Semantics

A comparison or membership test on a missing field is false, including
"not in". Ordering across types (a string field against a number) is an
evaluation error.

ORDER BY compares the string form of values, so numbers order
lexicographically: 10 sorts before 9. Records without the field sort last.
Without SELECT ITEMS the window is 1-10000.
*/
package query
