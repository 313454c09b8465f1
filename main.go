package main

import (
	cli "btreestore/dbcli"
	"btreestore/logger"
)

func main() {
	defer logger.OnExit()
	cli.Execute()
}
