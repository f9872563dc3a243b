package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/localnerve/enrol-pipeline/internal/testutil"
	"go.uber.org/zap"
)

func main() {
	var showHelp bool
	flag.BoolVar(&showHelp, "h", false, "show help")
	var envFilename string
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	flag.Parse()

	usage := `
Run the enrol-pipeline stack (database, Authorizer, service) in testcontainers
with the environment variables from the .env file.

Usage:

testcontainers [-h] [-f ENV_FILE_PATH]

ENV_FILE_PATH: path to the .env file

example
  testcontainers -f /path/to/something/.env
`
	// if -h flag print usage and return
	if showHelp {
		fmt.Println(usage)
		return
	}

	log := zap.Must(zap.NewDevelopment()).Sugar()
	defer func() { _ = log.Sync() }()

	if envFilename != "" {
		log.Infof("Loading environment variables from %s", envFilename)
		if err := godotenv.Load(envFilename); err != nil {
			log.Fatalf("Failed to load environment variables: %v", err)
		}
	} else {
		log.Info("No environment file specified, using current environment variables")
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGTSTP, syscall.SIGQUIT)

	started := make(chan *testutil.TestContainers, 1)
	go func() {
		testContainers, err := testutil.CreateAllTestContainers(nil)
		if err != nil {
			log.Fatalf("Failed to create test containers: %v", err)
		}
		started <- testContainers
	}()

	sig := <-sigs
	log.Infof("Received signal: %v, terminating test containers...", sig)
	select {
	case testContainers := <-started:
		testContainers.Terminate(nil)
	default:
	}
}
