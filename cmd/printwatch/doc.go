// Command printwatch is the control CLI for the printwatch daemon. It talks
// to printwatchd over the JSON-RPC socket and renders results for humans;
// the daemon holds all print-subsystem logic.
package main
