// Command journal records trades and analyzes trading performance.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"trade-journal/internal/cli"
	"trade-journal/internal/logging"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	// replaced by the configured logger once config is loaded
	bootstrap := logging.NewLoggerWithConfig(logging.LogConfig{Level: "warn", Console: true})
	app := cli.NewApp(nil, bootstrap)
	rootCmd := cli.NewRootCmd(app)

	err := rootCmd.ExecuteContext(context.Background())
	if closeErr := app.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
