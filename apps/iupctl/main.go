// Command iupctl works with docmaster study plans from a terminal.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/docmaster/docmaster/client"
	"github.com/docmaster/docmaster/core"
	logsvc "github.com/docmaster/docmaster/services/logger"
)

func main() {
	conf := core.NewConfig()
	zl := logsvc.NewConsole(os.Stderr, conf).With().Str("component", "IUPCTL").Logger()
	logger := logsvc.NewRollbarLogger(zl, conf)
	defer logger.Close()

	session, err := client.NewSession(client.NewFileStore(conf.Client.SessionFile))
	if err != nil {
		logger.Fatal("opening session", err)
	}
	gw := client.NewGateway(conf.Client, session, logger)
	gw.OnUnauthorized = func() {
		fmt.Fprintln(os.Stderr, "Сеанс истёк. Войдите снова: iupctl login -username USERNAME")
	}

	cli := &commandLine{gw: gw, out: os.Stdout}
	if err = cli.run(context.Background(), os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintln(os.Stderr, client.UserMessage(err))
			logger.Debug("command failed", err)
		}
		logger.Close()
		os.Exit(1)
	}
}
