// Command spidev-probe opens a spidev node, optionally applies the SH1106 bus
// settings, and prints the resulting configuration.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/BeatGlow/sh1106/conn"
)

func main() {
	busFlag := flag.Int("bus", 0, "SPI bus")
	deviceFlag := flag.Int("device", 0, "SPI device")
	hzFlag := flag.Int("hz", 0, "Set the maximum clock in Hz (default: leave unchanged)")
	configureFlag := flag.Bool("configure", false, "Set mode 0, 8 bits per word")
	flag.Parse()

	c, err := conn.OpenSPI(*busFlag, *deviceFlag)
	if err != nil {
		log.Fatalln("open failed:", err)
	}
	fmt.Println("connected using", c)

	if *configureFlag {
		if err = c.SetMode(conn.SPIMode0); err != nil {
			_ = c.Close()
			log.Fatalln("set mode failed:", err)
		}
		if err = c.SetBitsPerWord(8); err != nil {
			_ = c.Close()
			log.Fatalln("set bits per word failed:", err)
		}
	}
	if *hzFlag > 0 {
		if err = c.SetMaxSpeed(*hzFlag); err != nil {
			_ = c.Close()
			log.Fatalln("set speed failed:", err)
		}
	}
	if *configureFlag || *hzFlag > 0 {
		fmt.Println("configured as", c)
	}

	if err = c.Close(); err != nil {
		log.Fatalln("close failed:", err)
	}
}
