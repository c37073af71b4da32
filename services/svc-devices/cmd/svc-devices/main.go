package main

import "github.com/architeacher/devices-api/services/svc-devices/internal/runtime"

func main() {
	runtime.New().Run()
}
