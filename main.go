// Command guardflow drives guarded step workflows from the terminal and over HTTP.
package main

import "guardflow/internal/cli"

func main() {
	cli.Execute()
}
