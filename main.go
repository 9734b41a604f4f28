package main

import "github.com/penpenguin/PetaTas-sub000/cmd"

func main() {
	cmd.Execute()
}
