package main

import "github.com/blackwell-systems/vertexctl/internal/app"

// version is set with -ldflags "-X main.version=..." at build time.
var version = "dev"

func main() {
	app.SetVersion(version)
	app.Execute()
}
