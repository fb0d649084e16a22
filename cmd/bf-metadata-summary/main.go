package main

import (
	"fmt"
	"os"

	"github.com/venicegeo/bf-metadata-summary/util"
)

func main() {
	ctx := &util.BasicLogContext{}
	if err := util.LoadDotEnv(); err != nil {
		util.LogAlert(ctx, err.Error())
	}
	util.LogAudit(ctx, util.LogAuditInput{Actor: "main()", Action: "startup", Actee: "self", Message: "Application Startup", Severity: util.INFO})
	err := createCliApp().Run(os.Args)
	util.SyncLogger()
	if err != nil {
		util.LogAlert(ctx, fmt.Sprintf("Error executing CLI app: %v", err))
		os.Exit(1)
	}
}
