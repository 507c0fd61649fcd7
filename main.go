package main

import "github.com/KaramelBytes/carscout/cmd"

func main() {
	cmd.Execute()
}
