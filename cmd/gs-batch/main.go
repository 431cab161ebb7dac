package main

// main is the entry point for the gs-batch application. All command
// wiring lives in root.go; Execute handles flag parsing, configuration
// loading, signal-aware context setup and the exit code.
func main() {
	Execute()
}
