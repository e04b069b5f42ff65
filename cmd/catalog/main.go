package main

import (
	"os"

	"vibeset.fm/catalog/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
