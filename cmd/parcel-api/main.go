package main

import "context"

// Запускается двумя env-переменными: configPath (yaml-конфиг) и
// swaggerPath (docs/swagger.json).
func main() {
	app := mustBootstrapParcelAPI()
	defer app.Close()

	if err := app.Run(); err != nil && err != context.Canceled {
		panic(err)
	}
}
