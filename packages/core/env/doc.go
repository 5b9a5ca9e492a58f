// Package env expands {{...}} placeholders in command line arguments.
//
// A placeholder is one of:
//   - {{name}}: a variable from --var, a .env file, EASYHTTP_VAR_* or a capture
//   - {{$NAME}}: an environment variable
//   - {{fn(args)}}: a builtin function
//
// Unknown placeholders are left in place and reported by Unresolved.
package env
