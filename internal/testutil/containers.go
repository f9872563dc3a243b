// This file is a helper for running tests with testcontainers.
// It is used by the container-backed repository tests and by the standalone
// cmd/testcontainers executable. Expects environment variables to be loaded
// from .env files when running the full stack.
//

package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/localnerve/enrol-pipeline/data"
	"github.com/localnerve/enrol-pipeline/internal/config"
	"github.com/localnerve/enrol-pipeline/internal/database"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testDatabase = "enrol"
	testUser     = "enrol_app"
	testPassword = "enrol_app_pw"
	testRootPass = "enrol_root_pw"
)

type TestContainers struct {
	Network             *testcontainers.DockerNetwork
	DBContainer         testcontainers.Container
	AuthorizerContainer testcontainers.Container
	AppContainer        testcontainers.Container
	AppBuilderContainer testcontainers.Container
}

func (tc *TestContainers) Terminate(t *testing.T) {
	ctx := context.Background()
	if tc.AppContainer != nil {
		if err := tc.AppContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate enrol-pipeline: %v", err)
		}
	}
	if tc.AppBuilderContainer != nil {
		if err := tc.AppBuilderContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate enrol-pipeline builder: %v", err)
		}
	}
	if tc.AuthorizerContainer != nil {
		if err := tc.AuthorizerContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate Authorizer: %v", err)
		}
	}
	if tc.DBContainer != nil {
		if err := tc.DBContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate database: %v", err)
		}
	}
	if tc.Network != nil {
		if err := tc.Network.Remove(ctx); err != nil {
			logMessage(t, "Failed to remove network: %v", err)
		}
	}
}

// StartDatabase starts a standalone database container of dbType and returns
// a config pointing at its mapped port. Skips the test under -short.
func StartDatabase(t *testing.T, dbType string) (*TestContainers, *config.Config) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()
	testContainers := &TestContainers{}

	cfg := &config.Config{
		Environment:       "test",
		DBType:            dbType,
		DBDatabase:        testDatabase,
		DBUser:            testUser,
		DBPassword:        testPassword,
		DBConnectionLimit: 4,
	}

	tcpDbPort := nat.Port("5432/tcp")
	if dbType != "postgres" {
		tcpDbPort = nat.Port("3306/tcp")
	}

	dbContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        defaultDBImage(dbType),
			ExposedPorts: []string{string(tcpDbPort)},
			Env:          getDBInitEnvMap(cfg),
			WaitingFor:   wait.ForListeningPort(tcpDbPort).WithStartupTimeout(90 * time.Second),
			HostConfigModifier: func(hostConfig *container.HostConfig) {
				hostConfig.Tmpfs = map[string]string{dbDataDir(dbType): "rw"}
			},
		},
		Started: true,
	})
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to start database")
	}
	testContainers.DBContainer = dbContainer
	t.Cleanup(func() { testContainers.Terminate(t) })

	dbHost, _ := dbContainer.Host(ctx)
	dbPort, _ := dbContainer.MappedPort(ctx, tcpDbPort)
	cfg.DBHost = dbHost
	cfg.DBPort = dbPort.Port()

	if err := initDatabase(cfg); err != nil {
		exitWithError(t, err, "Failed to initialize database")
	}

	return testContainers, cfg
}

// CreateAllTestContainers starts the database, Authorizer and the service
// image on one network, as described by the environment.
func CreateAllTestContainers(t *testing.T) (*TestContainers, error) {
	ctx := context.Background()
	testContainers := &TestContainers{}

	debugContainer := os.Getenv("DEBUG_CONTAINER")

	// Create a network
	nw, err := network.New(ctx)
	if err != nil {
		exitWithError(t, err, "Failed to create network")
	}
	testContainers.Network = nw
	networkName := nw.Name

	cfg := &config.Config{
		DBType:     os.Getenv("DB_TYPE"),
		DBDatabase: os.Getenv("DB_DATABASE"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
	}

	// Create and start the Database container
	dbNetworkName := os.Getenv("DB_HOST")
	tcpDbPort, err := nat.NewPort("tcp", os.Getenv("DB_PORT"))
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to create DB port")
	}
	dbImage := os.Getenv("DB_IMAGE")
	if dbImage == "" {
		dbImage = defaultDBImage(cfg.DBType)
	}
	dbContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        dbImage,
			ExposedPorts: []string{string(tcpDbPort)},
			Env:          getDBInitEnvMap(cfg),
			WaitingFor:   wait.ForListeningPort(tcpDbPort).WithStartupTimeout(60 * time.Second),
			Networks:     []string{networkName},
			NetworkAliases: map[string][]string{
				networkName: {dbNetworkName},
			},
		},
		Started: true,
	})
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to start Database")
	}
	testContainers.DBContainer = dbContainer

	// Initialize the database through the mapped port
	dbHost, _ := dbContainer.Host(ctx)
	dbPort, _ := dbContainer.MappedPort(ctx, tcpDbPort)
	initCfg := *cfg
	initCfg.DBHost = dbHost
	initCfg.DBPort = dbPort.Port()
	if err := initDatabase(&initCfg); err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to initialize database")
	}

	// Create and start the Authorizer container on its own sqlite database
	authzNetworkName := "authorizer"
	tcpAuthzPort, err := nat.NewPort("tcp", os.Getenv("AUTHZ_PORT"))
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to create Authorizer port")
	}
	authzLogLevel := "info"
	if debugContainer == "true" {
		authzLogLevel = "debug"
	}
	authorizerContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        os.Getenv("AUTHZ_IMAGE"),
			ExposedPorts: []string{string(tcpAuthzPort)},
			Env: map[string]string{
				"ENV":           "production",
				"CLIENT_ID":     os.Getenv("AUTHZ_CLIENT_ID"),
				"PORT":          os.Getenv("AUTHZ_PORT"),
				"DATABASE_TYPE": "sqlite",
				"DATABASE_URL":  "/tmp/authorizer.db",
				"ADMIN_SECRET":  os.Getenv("AUTHZ_ADMIN_SECRET"),
				"ROLES":         "admin,user",
				"DEFAULT_ROLES": "user",
				"LOG_LEVEL":     authzLogLevel,
			},
			WaitingFor: wait.ForLog("Authorizer running at PORT:").WithStartupTimeout(10 * time.Second),
			Networks:   []string{networkName},
			NetworkAliases: map[string][]string{
				networkName: {authzNetworkName},
			},
		},
		Started: true,
	})
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to start Authorizer")
	}
	testContainers.AuthorizerContainer = authorizerContainer

	authzHost, _ := authorizerContainer.Host(ctx)
	authzPort, _ := authorizerContainer.MappedPort(ctx, tcpAuthzPort)
	logMessage(t, "AUTHZ_URL=%s:%s", authzHost, authzPort.Port())

	imageName := "enrol-pipeline-test:latest"

	exists, err := imageExists(ctx, imageName)
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to check if image exists")
	}

	appPortNumber := os.Getenv("PORT")
	tcpAppPort, err := nat.NewPort("tcp", appPortNumber)
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to create service port")
	}

	appExposedPorts := []string{string(tcpAppPort)}
	if debugContainer == "true" {
		appExposedPorts = append(appExposedPorts, "2345/tcp")
	}

	hostConfigModifier := func(hostConfig *container.HostConfig) {
		if debugContainer == "true" {
			hostConfig.PortBindings = nat.PortMap{
				"2345/tcp": []nat.PortBinding{
					{HostIP: "127.0.0.1", HostPort: "2345"},
				},
			}
			hostConfig.CapAdd = []string{"SYS_PTRACE"}
			hostConfig.SecurityOpt = []string{"apparmor:unconfined"}
		}
	}

	var waitStrategy wait.Strategy
	waitStrategy = wait.ForHTTP("/health").WithPort(tcpAppPort).WithStartupTimeout(30 * time.Second)
	if debugContainer == "true" {
		waitStrategy = wait.ForLog("API server listening at: [::]:2345").WithStartupTimeout(5 * time.Minute)
	}

	appContainerRequest := testcontainers.ContainerRequest{
		ExposedPorts: appExposedPorts,
		Env: map[string]string{
			"ENVIRONMENT":         "test",
			"DB_TYPE":             cfg.DBType,
			"DB_HOST":             dbNetworkName,
			"DB_PORT":             os.Getenv("DB_PORT"),
			"DB_DATABASE":         cfg.DBDatabase,
			"DB_USER":             cfg.DBUser,
			"DB_PASSWORD":         cfg.DBPassword,
			"DB_CONNECTION_LIMIT": os.Getenv("DB_CONNECTION_LIMIT"),
			"AUTHZ_URL":           fmt.Sprintf("http://%s:%s", authzNetworkName, os.Getenv("AUTHZ_PORT")),
			"AUTHZ_CLIENT_ID":     os.Getenv("AUTHZ_CLIENT_ID"),
			"PORT":                appPortNumber,
		},
		HostConfigModifier: hostConfigModifier,
		WaitingFor:         waitStrategy,
		Networks:           []string{networkName},
	}

	if debugContainer == "true" {
		appContainerRequest.Entrypoint = []string{
			"/usr/local/bin/dlv",
			"--listen=:2345",
			"--headless=true",
			"--api-version=2",
			"--accept-multiclient",
			"exec",
			"./enrol-pipeline",
		}
	}

	if !exists {
		resourceReaperSessionID := uuid.New().String()

		buildArgs := map[string]*string{
			"RESOURCE_REAPER_SESSION_ID": &resourceReaperSessionID,
		}
		if debugContainer == "true" {
			buildArgs["DEBUG"] = &debugContainer
		}

		buildContext := os.Getenv("TESTCONTAINERS_BUILD_CONTEXT")
		if buildContext == "" {
			buildContext = "../.."
		}

		logMessage(t, "Image %s does not exist, building...", imageName)
		builderContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				FromDockerfile: testcontainers.FromDockerfile{
					Context:    buildContext,
					Dockerfile: "Dockerfile",
					Repo:       "enrol-pipeline-test-builder",
					Tag:        "latest",
					BuildArgs:  buildArgs,
					BuildOptionsModifier: func(opts *build.ImageBuildOptions) {
						opts.Target = "builder"
					},
					PrintBuildLog: true,
				},
			},
			Started: false,
		})
		if err != nil {
			testContainers.Terminate(t)
			exitWithError(t, err, "Failed to build enrol-pipeline-test-builder")
		}
		testContainers.AppBuilderContainer = builderContainer

		imageNameParts := strings.Split(imageName, ":")
		appContainerRequest.FromDockerfile = testcontainers.FromDockerfile{
			Context:    buildContext,
			Dockerfile: "Dockerfile",
			Repo:       imageNameParts[0],
			Tag:        imageNameParts[1],
			KeepImage:  true,
			BuildArgs:  buildArgs,
			BuildOptionsModifier: func(opts *build.ImageBuildOptions) {
				opts.Target = "runtime"
			},
			PrintBuildLog: true,
		}
	} else {
		logMessage(t, "Image %s exists, reusing...", imageName)
		appContainerRequest.Image = imageName
	}

	appContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: appContainerRequest,
		Started:          true,
	})
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to start enrol-pipeline")
	}
	testContainers.AppContainer = appContainer

	appHost, _ := appContainer.Host(ctx)
	appPort, _ := appContainer.MappedPort(ctx, tcpAppPort)
	logMessage(t, "BASE_URL=%s:%s", appHost, appPort.Port())

	logMessage(t, "enrol-pipeline testcontainers started successfully")
	return testContainers, nil
}

func defaultDBImage(dbType string) string {
	if dbType == "postgres" {
		return "postgres:16-alpine"
	}
	return "mariadb:11.4"
}

func dbDataDir(dbType string) string {
	if dbType == "postgres" {
		return "/var/lib/postgresql/data"
	}
	return "/var/lib/mysql"
}

func getDBInitEnvMap(cfg *config.Config) map[string]string {
	if cfg.DBType == "postgres" {
		return map[string]string{
			"POSTGRES_PASSWORD": cfg.DBPassword,
			"POSTGRES_USER":     cfg.DBUser,
			"POSTGRES_DB":       cfg.DBDatabase,
		}
	}
	rootPassword := os.Getenv("DB_ROOT_PASSWORD")
	if rootPassword == "" {
		rootPassword = testRootPass
	}
	return map[string]string{
		"MYSQL_ROOT_PASSWORD": rootPassword,
		"MYSQL_DATABASE":      cfg.DBDatabase,
		"MYSQL_USER":          cfg.DBUser,
		"MYSQL_PASSWORD":      cfg.DBPassword,
	}
}

// initDatabase applies the privilege script and migrates the schema
func initDatabase(cfg *config.Config) error {
	expand := func(key string) string {
		switch key {
		case "DB_DATABASE":
			return cfg.DBDatabase
		case "DB_USER":
			return cfg.DBUser
		case "DB_PASSWORD":
			return cfg.DBPassword
		}
		return ""
	}

	if cfg.DBType == "postgres" {
		db, err := database.Connect(cfg, nil)
		if err != nil {
			return err
		}
		defer database.Close(db)
		for _, q := range splitSQL(os.Expand(data.InitdbPostgresPrivileges, expand)) {
			if err := db.Exec(q).Error; err != nil {
				return fmt.Errorf("%s : when executing > %s", err.Error(), q)
			}
		}
		return database.AutoMigrate(db)
	}

	rootPassword := os.Getenv("DB_ROOT_PASSWORD")
	if rootPassword == "" {
		rootPassword = testRootPass
	}
	sqlDB, err := sql.Open("mysql", fmt.Sprintf("root:%s@tcp(%s:%s)/", rootPassword, cfg.DBHost, cfg.DBPort))
	if err != nil {
		return fmt.Errorf("failed to connect to MariaDB for setup: %w", err)
	}
	defer sqlDB.Close()

	// Wait for connection to be really ready
	for i := 0; i < 30; i++ {
		err = sqlDB.Ping()
		if err == nil {
			break
		}
		time.Sleep(1 * time.Second)
	}
	if err != nil {
		return fmt.Errorf("MariaDB not ready after 30 seconds: %w", err)
	}

	for _, q := range splitSQL(os.Expand(data.InitdbMariaDBPrivileges, expand)) {
		if _, err := sqlDB.Exec(q); err != nil {
			return fmt.Errorf("%s : when executing > %s", err.Error(), q)
		}
	}

	db, err := database.Connect(cfg, nil)
	if err != nil {
		return err
	}
	defer database.Close(db)
	return database.AutoMigrate(db)
}

// splitSQL drops comment lines and splits a script into statements
func splitSQL(script string) []string {
	var lines []string
	for _, l := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(l), "--") {
			continue
		}
		lines = append(lines, l)
	}

	var queries []string
	for _, q := range strings.Split(strings.Join(lines, "\n"), ";") {
		if q = strings.TrimSpace(q); q != "" {
			queries = append(queries, q)
		}
	}
	return queries
}

func imageExists(ctx context.Context, imageName string) (bool, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return false, err
	}
	defer cli.Close()

	images, err := cli.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return false, err
	}

	for _, image := range images {
		for _, tag := range image.RepoTags {
			if tag == imageName {
				return true, nil
			}
		}
	}

	return false, nil
}

func exitWithError(t *testing.T, err error, msg string) {
	if t != nil {
		t.Fatalf(msg+": %v", err)
	} else {
		fmt.Printf(msg+": %v\n", err)
		os.Exit(1)
	}
}

func logMessage(t *testing.T, format string, args ...any) {
	if t != nil {
		t.Logf(format, args...)
	} else {
		fmt.Printf(format+"\n", args...)
	}
}
