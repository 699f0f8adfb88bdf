package main

import "github.com/analogdevicesinc/automl-embedded/pkg/cli"

func main() {
	cli.Execute()
}
