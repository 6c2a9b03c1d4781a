package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/mattn/go-colorable"
	"github.com/mitchellh/cli"
	"github.com/posener/complete"
	log "github.com/sirupsen/logrus"
)

func main() {
	log.SetOutput(colorable.NewColorableStderr())
	log.SetFormatter(&log.TextFormatter{ForceColors: true, FullTimestamp: true})

	sessionID := uuid.NewString()
	logger := log.WithField("session", sessionID)

	cmp := complete.New("furrowdb", complete.Command{
		Sub: complete.Commands{
			"create":     complete.Command{Args: complete.PredictAnything},
			"put":        complete.Command{Args: complete.PredictAnything},
			"get":        complete.Command{Args: complete.PredictAnything},
			"new-index":  complete.Command{Args: complete.PredictAnything},
			"index-put":  complete.Command{Args: complete.PredictAnything},
			"index-get":  complete.Command{Args: complete.PredictAnything},
		},
	})
	cmp.InstallName = "install-completion"
	cmp.UninstallName = "uninstall-completion"
	if cmp.Complete() {
		return
	}

	args := os.Args[1:]
	if len(args) == 0 {
		args = []string{"help"}
	}

	commands := map[string]cli.CommandFactory{
		"create":    func() (cli.Command, error) { return &CreateCommand{Logger: logger}, nil },
		"put":       func() (cli.Command, error) { return &PutCommand{Logger: logger}, nil },
		"get":       func() (cli.Command, error) { return &GetCommand{Logger: logger}, nil },
		"new-index": func() (cli.Command, error) { return &NewIndexCommand{Logger: logger}, nil },
		"index-put": func() (cli.Command, error) { return &IndexPutCommand{Logger: logger}, nil },
		"index-get": func() (cli.Command, error) { return &IndexGetCommand{Logger: logger}, nil },
	}

	furrowCLI := &cli.CLI{
		Name:     "furrowdb",
		Args:     args,
		Commands: commands,
		HelpFunc: cli.BasicHelpFunc("furrowdb"),
	}

	exitCode, err := furrowCLI.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		os.Exit(1)
	}
	os.Exit(exitCode)
}
