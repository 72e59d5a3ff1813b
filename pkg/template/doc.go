/*
Package template finds variable references embedded in free-form text.

A reference is an identifier wrapped in double braces, with optional whitespace
inside the braces:

	Hello {{name}}, you are {{ age }}

Identifiers start with a letter, '_' or '$' and continue with letters, digits, '_'
or '$'. Anything else between braces is plain text. Extraction never fails.
*/
package template
