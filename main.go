/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "earthquery/cmd"

func main() {
	cmd.Execute()
}
