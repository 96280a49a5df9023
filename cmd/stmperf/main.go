package main

import "fmt"
import "log"
import "net/http"
import _ "net/http/pprof"
import "os"

func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: stmperf [load|verify] options...")
		os.Exit(1)
	}

	go func() {
		log.Println(http.ListenAndServe("localhost:6060", nil))
	}()

	switch os.Args[1] {
	case "load":
		doLoad(os.Args[2:])
	case "verify":
		doVerify(os.Args[2:])
	default:
		fmt.Println("please provide a valid command !!")
	}
}
