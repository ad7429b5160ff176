//go:build tinygo

package main

import (
	"nvflash/app"
	"nvflash/hal"
)

func main() {
	app.Run(hal.New())
}
