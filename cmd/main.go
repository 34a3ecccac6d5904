package main

import (
	"os"

	"github.com/tg-collector/cmd/agent"
)

func main() {
	os.Exit(agent.Execute())
}
