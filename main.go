package main

import (
	cmd "github.com/apicurio/workflow-results/cmd/wfr"
	"github.com/apicurio/workflow-results/data"
	"github.com/apicurio/workflow-results/internal/assets"
)

func main() {
	assets.UpdateData(&data.Templates)
	cmd.Execute()
}
