package main

import "github.com/geocoder89/projecthub/internal/cli"

func main() {
	cli.Execute()
}
