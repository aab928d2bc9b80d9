package main

import (
	"github.com/ssargent/roiread/cmd/roiread/cmd"
	"github.com/ssargent/roiread/pkg/di"
)

func main() {
	cmd.Execute(di.NewContainer())
}
