package main

import "github.com/TroubleGy/OneKeyV2/cmd"

func main() {
	cmd.Execute()
}
