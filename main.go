package main

import "github.com/iksnae/practice-reconcile/cmd"

func main() {
	cmd.Execute()
}
