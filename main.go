package main

import "github.com/pgdatadiff/pgdatadiff/cmd"

func main() {
	cmd.Execute()
}
