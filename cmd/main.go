package main

import (
	"github.com/atlas-reps/go-klv/pkg/cmd"
)

func main() {
	cmd.Execute()
}
