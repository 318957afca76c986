// Package cli implements tracectl, an operator command line for a running
// worker. Every command becomes one envelope sent over the worker's gRPC
// transport, and the JSON response is printed as received.
//
// Output is indented when stdout is a terminal and compact otherwise;
// -o json or -o pretty forces either. A response with "success": false
// makes the command exit non-zero after printing it.
package cli
