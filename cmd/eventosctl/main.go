package main

import "github.com/iliyamo/eventos-api/cmd/eventosctl/cmd"

func main() {
	cmd.Execute()
}
