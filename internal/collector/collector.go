package collector

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"code.dogecoin.org/dogeaddr/internal/metrics"
	"code.dogecoin.org/dogeaddr/internal/spec"
	"code.dogecoin.org/dogeaddr/pkg/msg"
	"code.dogecoin.org/governor"
	"go.uber.org/zap"
)

// Current Core Node version
const CurrentProtocolVersion = 70015

// Minimum height accepted by other nodes
const MinimumBlockHeight = 700000

// Our DogeAddr Node services
const DogeAddrServices = 0

const UserAgent = "/DogeBox: DogeAddr Service/"

// Disconnect after receiving this many addresses;
// a node will only respond once to the 'getaddr' request.
const CollectLimit = 1000

type Collector struct {
	governor.ServiceCtx
	_store  spec.Store
	store   spec.StoreCtx
	log     *zap.SugaredLogger
	metrics *metrics.Metrics
	mutex   sync.Mutex
	conn    net.Conn
	Address spec.Address // fixed node, or zero to choose from the store
	maxTime time.Duration
	isLocal bool
}

// New creates a collector service. With a fixed address it keeps
// reconnecting to that node; otherwise it crawls nodes from the store.
func New(store spec.Store, fromAddr spec.Address, maxTime time.Duration, isLocal bool, log *zap.SugaredLogger, m *metrics.Metrics) *Collector {
	return &Collector{_store: store, Address: fromAddr, maxTime: maxTime, isLocal: isLocal, log: log, metrics: m}
}

func (c *Collector) Stop() {
	c.mutex.Lock()
	conn := c.conn
	c.mutex.Unlock()

	if conn != nil {
		// must close net.Conn to interrupt blocking read/write.
		conn.Close()
	}
}

// goroutine
func (c *Collector) Run() {
	c.store = c._store.WithCtx(c.Context) // Service Context is first available here
	for !c.Stopping() {
		// choose the next node to connect to
		remoteNode, ok := c.nextNode()
		if !ok {
			// none available, wait for the local node to add some
			if c.Sleep(5 * time.Second) {
				return
			}
			continue
		}
		// collect addresses from the node until the timeout
		c.collectAddresses(remoteNode)
		// avoid spamming on connect errors
		if c.Sleep(10 * time.Second) {
			// context was cancelled
			return
		}
	}
}

func (c *Collector) nextNode() (spec.Address, bool) {
	if c.Address.Host != nil {
		return c.Address, true
	}
	node, err := c.store.ChooseCoreNode()
	if err != nil {
		if !errors.Is(err, spec.ErrNotFound) {
			c.log.Errorf("[%s] ChooseCoreNode: %v", c.ServiceName, err)
		}
		return spec.Address{}, false
	}
	return node, true
}

func (c *Collector) collectAddresses(nodeAddr spec.Address) {
	who := nodeAddr.String()
	c.log.Infof("[%s] Connecting to node: %s", who, nodeAddr)

	d := net.Dialer{Timeout: 30 * time.Second}
	conn, err := d.DialContext(c.Context, "tcp", nodeAddr.String())
	if err != nil {
		c.metrics.Connections.WithLabelValues(metrics.ResultFailed).Inc()
		c.log.Warnf("[%s] Error connecting to Dogecoin node: %v", who, err)
		return
	}
	defer conn.Close()

	c.mutex.Lock()
	c.conn = conn // for shutdown
	c.mutex.Unlock()
	defer func() {
		c.mutex.Lock()
		c.conn = nil
		c.mutex.Unlock()
	}()

	// set a time limit on waiting for addresses per node
	if c.maxTime != 0 {
		conn.SetReadDeadline(time.Now().Add(c.maxTime))
	}

	err = c.session(conn, nodeAddr)
	if err != nil {
		if msg.IsProtocolError(err) {
			c.log.Warnf("[%s] Disconnecting untrustworthy node: %v", who, err)
		} else {
			c.log.Infof("[%s] Disconnected: %v", who, err)
		}
		return
	}
	c.log.Infof("[%s] Finished collecting addresses", who)
}

// session runs the handshake and then collects addresses until the
// node has sent CollectLimit of them or the connection fails.
// A *msg.ProtocolError means the node sent malformed input.
func (c *Collector) session(conn net.Conn, nodeAddr spec.Address) error {
	who := nodeAddr.String()
	reader := bufio.NewReader(conn)

	// send our 'version' message
	err := c.send(conn, msg.CmdVersion, makeVersion(CurrentProtocolVersion, nodeAddr))
	if err != nil {
		c.metrics.Connections.WithLabelValues(metrics.ResultFailed).Inc()
		return err
	}
	c.log.Debugf("[%s] Sent 'version' message", who)

	// expect the version message from the node
	version, err := c.expectVersion(reader)
	if err != nil {
		c.metrics.Connections.WithLabelValues(metrics.ResultRejected).Inc()
		return c.countError(err)
	}
	c.metrics.Connections.WithLabelValues(metrics.ResultConnected).Inc()
	c.log.Infof("[%s] Received 'version': %d %s height %d", who, version.Version, version.Agent, version.Height)

	nodeVer := version.Version // other node's version
	if nodeVer >= 209 {
		// send 'verack' in response
		if err := c.send(conn, msg.CmdVerAck, nil); err != nil {
			return err
		}
	}

	// successful connection: update the node's timestamp.
	if !c.isLocal {
		if err := c.store.UpdateCoreTime(nodeAddr); err != nil {
			c.log.Errorf("[%s] UpdateCoreTime: %v", who, err)
		}
	}

	// request a list of known addresses
	if err := c.send(conn, msg.CmdGetAddr, nil); err != nil {
		return err
	}

	addresses := 0
	for {
		cmd, payload, err := msg.ReadMessage(reader)
		if err != nil {
			return c.countError(err)
		}
		c.countMessage(cmd)

		switch cmd {
		case msg.CmdPing:
			ping, _, err := msg.DecodePing(payload, 0, nodeVer)
			if err != nil {
				return c.countError(err)
			}
			// reply with 'pong', same nonce (keep-alive)
			if err := c.send(conn, msg.CmdPong, msg.EncodePong(msg.PongMsg{Nonce: ping.Nonce})); err != nil {
				return err
			}

		case msg.CmdReject:
			re, _, err := msg.DecodeReject(payload, 0, nodeVer)
			if err != nil {
				return c.countError(err)
			}
			c.log.Infof("[%s] Reject: %v %v %v", who, re.CodeName(), re.Message, re.Reason)

		case msg.CmdAddr:
			addr, _, err := msg.DecodeAddrMsg(payload, 0, nodeVer)
			if err != nil {
				return c.countError(err)
			}
			if err := c.storeAddresses(who, addr); err != nil {
				return err
			}
			addresses += len(addr.AddrList)
			if addresses >= CollectLimit {
				// done: try the next node (or reconnect to local node)
				return nil
			}

		default:
			// validate anything else we know how to decode
			if _, err := msg.DecodeMessage(cmd, payload, nodeVer); err != nil && !errors.Is(err, msg.ErrUnknownCommand) {
				return c.countError(err)
			}
			c.log.Debugf("[%s] Received: %v", who, cmd)
		}
	}
}

func (c *Collector) storeAddresses(who string, addr msg.AddrMsg) error {
	oldLen, _, err := c.store.CoreStats()
	if err != nil {
		return err
	}
	kept := 0
	keepAfter := time.Now().Add(-spec.ExpiryTime).Unix()
	for _, a := range addr.AddrList {
		if int64(a.Time) >= keepAfter {
			err := c.store.AddCoreNode(spec.Address{Host: a.IP(), Port: a.Port}, int64(a.Time), a.Services)
			if err != nil {
				return err
			}
			kept++
		}
	}
	mapSize, _, err := c.store.CoreStats()
	if err != nil {
		return err
	}
	c.metrics.AddressesReceived.Add(float64(len(addr.AddrList)))
	c.metrics.AddressesExpired.Add(float64(len(addr.AddrList) - kept))
	c.metrics.AddressesStored.Add(float64(kept))
	c.metrics.KnownNodes.Set(float64(mapSize))
	c.log.Infof("[%s] Addresses: %d received, %d expired, %d new, %d in map", who, len(addr.AddrList), len(addr.AddrList)-kept, mapSize-oldLen, mapSize)
	return nil
}

// countMessage labels by command only for commands we know,
// so a node cannot create unbounded label values.
func (c *Collector) countMessage(cmd string) {
	if _, ok := msg.DecoderFor(cmd); !ok {
		cmd = "other"
	}
	c.metrics.MessagesReceived.WithLabelValues(cmd).Inc()
}

func (c *Collector) countError(err error) error {
	var pe *msg.ProtocolError
	if errors.As(err, &pe) {
		cmd := pe.Command
		if _, ok := msg.DecoderFor(cmd); !ok {
			cmd = "other"
		}
		c.metrics.ProtocolErrors.WithLabelValues(cmd).Inc()
	}
	return err
}

func (c *Collector) send(conn net.Conn, cmd string, payload []byte) error {
	_, err := conn.Write(msg.EncodeMessage(cmd, payload))
	if err != nil {
		return fmt.Errorf("failed to send '%s': %w", cmd, err)
	}
	return nil
}

// makeVersion creates a version message to send to the peer
func makeVersion(remoteVersion int32, remote spec.Address) []byte {
	if remoteVersion > CurrentProtocolVersion {
		remoteVersion = CurrentProtocolVersion // min
	}
	var remoteIP [16]byte
	copy(remoteIP[:], remote.Host.To16())
	version := msg.VersionMsg{
		Version:   remoteVersion,
		Services:  DogeAddrServices,
		Timestamp: time.Now().Unix(),
		RemoteAddr: msg.NetAddr{
			Services: DogeAddrServices,
			Address:  remoteIP,
			Port:     remote.Port,
		},
		LocalAddr: msg.NetAddr{
			Services: DogeAddrServices,
			// NOTE: dogecoin nodes ignore these address fields.
		},
		Agent:  UserAgent,
		Nonce:  23972479,
		Height: MinimumBlockHeight,
		Relay:  false,
	}
	return msg.EncodeVersion(version)
}

func (c *Collector) expectVersion(reader *bufio.Reader) (msg.VersionMsg, error) {
	// Core Node implementation: if connection is inbound, send Version immediately.
	// This means we'll receive the Node's version before `verack` for our Version,
	// however this is undocumented, so other nodes might ack first.
	cmd, payload, err := msg.ReadMessage(reader)
	if err != nil {
		return msg.VersionMsg{}, fmt.Errorf("error reading message: %w", err)
	}
	c.countMessage(cmd)
	switch cmd {
	case msg.CmdVersion:
		version, _, err := msg.DecodeVersion(payload, 0, 0)
		return version, err
	case msg.CmdReject:
		re, _, err := msg.DecodeReject(payload, 0, 0)
		if err != nil {
			return msg.VersionMsg{}, err
		}
		return msg.VersionMsg{}, fmt.Errorf("reject: %s %s %s", re.CodeName(), re.Message, re.Reason)
	}
	return msg.VersionMsg{}, fmt.Errorf("expected 'version' message from node, but received: %s", cmd)
}
