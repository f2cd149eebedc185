/*
Package main contains a command-line example for gxpacket.

The example shows how to:
  - select a serial backend and configure the port from command-line flags
  - choose a framing policy (quiet gap or fixed length with timeout)
  - print received frames as hex
  - send a message in chunks and print the progress
  - save the used port to a YAML file and reuse it on the next run
*/
package main
