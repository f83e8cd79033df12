package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"firmdesk.app/intake/tools/linters/enumvalidator"
)

func main() {
	singlechecker.Main(enumvalidator.Analyzer)
}
