//go:build !tinygo && !cgo

package main

import "errors"

func runMkfs(*env, []string) error {
	return errors.New("mkfs: nvmtool was built without cgo; littlefs needs it")
}
