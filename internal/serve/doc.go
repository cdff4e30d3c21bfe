// Package serve implements the environment bootstrap workflow that replaced
// the repository's dev-server launch shell script: it verifies the Python
// interpreter, applies pending Django migrations, and starts the development
// server.
package serve
