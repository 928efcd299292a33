// Command maestro-inspector inspects mobile app UI trees over an automation
// server and derives element locators.
package main

import "github.com/devicelab-dev/maestro-inspector/pkg/cli"

func main() {
	cli.Execute()
}
