package capture

// Packet capture of fuzzing sessions to pcap

import (
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"github.com/google/gopacket/pcapgo"

	"github.com/tturner/ocppfuzz/internal/logging"
)

const snapLen = 65535

// Options selects what to capture and where to write it.
type Options struct {
	// Interface to open; empty picks one for Host.
	Interface  string
	Host       string
	Port       int
	OutputFile string
}

// Stats counts captured traffic.
type Stats struct {
	Packets        int64
	PayloadPackets int64
	PayloadBytes   int64
}

// Capture represents a packet capture session
type Capture struct {
	handle    *pcap.Handle
	writer    *pcapgo.Writer
	file      *os.File
	iface     string
	logger    *logging.Logger
	startTime time.Time
	stopChan  chan struct{}
	done      chan struct{}
	stopOnce  sync.Once

	packets        atomic.Int64
	payloadPackets atomic.Int64
	payloadBytes   atomic.Int64
}

// Filter returns the BPF expression for OCPP traffic on port.
func Filter(port int) string {
	if port <= 0 {
		return "tcp"
	}
	return fmt.Sprintf("tcp port %d", port)
}

// Start opens a live capture and writes matching packets to opts.OutputFile
// until Stop is called.
func Start(opts Options, logger *logging.Logger) (*Capture, error) {
	if opts.OutputFile == "" {
		return nil, fmt.Errorf("no capture output file")
	}
	if logger == nil {
		logger, _ = logging.NewLogger(logging.LogLevelSilent, "")
	}
	iface := opts.Interface
	if iface == "" {
		var err error
		if iface, err = ResolveInterface(opts.Host); err != nil {
			return nil, err
		}
	}

	handle, err := pcap.OpenLive(iface, snapLen, false, pcap.BlockForever)
	if err != nil {
		return nil, fmt.Errorf("open live capture on %s: %w", iface, err)
	}
	if err := handle.SetBPFFilter(Filter(opts.Port)); err != nil {
		handle.Close()
		return nil, fmt.Errorf("set BPF filter: %w", err)
	}

	file, err := os.Create(opts.OutputFile)
	if err != nil {
		handle.Close()
		return nil, fmt.Errorf("create pcap file: %w", err)
	}
	writer := pcapgo.NewWriter(file)
	if err := writer.WriteFileHeader(snapLen, handle.LinkType()); err != nil {
		file.Close()
		handle.Close()
		return nil, fmt.Errorf("write pcap header: %w", err)
	}

	c := &Capture{
		handle:    handle,
		writer:    writer,
		file:      file,
		iface:     iface,
		logger:    logger,
		startTime: time.Now(),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	logger.Info("Capturing %s on %s to %s", Filter(opts.Port), iface, opts.OutputFile)
	go c.captureLoop()
	return c, nil
}

// ResolveInterface picks a capture device for traffic to or from host: the
// loopback device for loopback or empty hosts, otherwise "any".
func ResolveInterface(host string) (string, error) {
	if !isLoopbackHost(host) {
		return "any", nil
	}
	devices, err := pcap.FindAllDevs()
	if err != nil {
		return "", fmt.Errorf("find network devices: %w", err)
	}
	for _, device := range devices {
		for _, addr := range device.Addresses {
			if addr.IP.IsLoopback() {
				return device.Name, nil
			}
		}
	}
	for _, device := range devices {
		switch device.Name {
		case "lo", "lo0", "Loopback", "Loopback Pseudo-Interface 1":
			return device.Name, nil
		}
	}
	return "", fmt.Errorf("could not find loopback interface")
}

func isLoopbackHost(host string) bool {
	if host == "" || host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (c *Capture) captureLoop() {
	defer close(c.done)
	source := gopacket.NewPacketSource(c.handle, c.handle.LinkType())
	packets := source.Packets()

	for {
		select {
		case <-c.stopChan:
			return
		case packet, ok := <-packets:
			if !ok {
				return
			}
			if packet == nil {
				continue
			}
			c.observe(packet)
			ci := packet.Metadata().CaptureInfo
			if err := c.writer.WritePacket(ci, packet.Data()); err != nil {
				c.logger.Error("write packet: %v", err)
			}
		}
	}
}

func (c *Capture) observe(packet gopacket.Packet) {
	c.packets.Add(1)
	n := tcpPayloadLen(packet)
	if n > 0 {
		c.payloadPackets.Add(1)
		c.payloadBytes.Add(int64(n))
	}
}

// tcpPayloadLen returns the TCP payload size of packet, or 0.
func tcpPayloadLen(packet gopacket.Packet) int {
	layer := packet.Layer(layers.LayerTypeTCP)
	if layer == nil {
		return 0
	}
	tcp, ok := layer.(*layers.TCP)
	if !ok {
		return 0
	}
	return len(tcp.Payload)
}

// Stop stops the capture and closes resources (idempotent)
func (c *Capture) Stop() error {
	var err error
	c.stopOnce.Do(func() {
		close(c.stopChan)
		// Closing the handle unblocks the packet source.
		c.handle.Close()
		select {
		case <-c.done:
		case <-time.After(time.Second):
		}
		err = c.file.Close()
		c.logger.Info("Capture stopped after %s: %d packets", time.Since(c.startTime).Round(time.Millisecond), c.packets.Load())
	})
	return err
}

// Interface returns the device being captured.
func (c *Capture) Interface() string {
	return c.iface
}

// Stats returns the traffic counted so far.
func (c *Capture) Stats() Stats {
	return Stats{
		Packets:        c.packets.Load(),
		PayloadPackets: c.payloadPackets.Load(),
		PayloadBytes:   c.payloadBytes.Load(),
	}
}
