package main

import "github.com/kcaldas/devconsole/cmd/cli"

func main() {
	cli.Execute()
}
