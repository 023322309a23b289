package udp_test

import (
	"context"
	"net"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"swimcore"
	"swimcore/internal/adapter/fake/fault"
	"swimcore/transport/udp"
)

func listenEphemeral(t *testing.T, logical swimcore.Address, book udp.AddressBook) *udp.Transport {
	t.Helper()
	bind, err := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	assert.NilError(t, err)
	tr, err := udp.Listen(udp.Address{Logical: logical, Bind: bind}, book)
	assert.NilError(t, err)
	return tr
}

func TestSendRecvRoundTrip(t *testing.T) {
	aLogical := swimcore.Address{ID: 1, Port: 0}
	bLogical := swimcore.Address{ID: 2, Port: 0}

	probe, err := net.ListenUDP("udp", nil)
	assert.NilError(t, err)
	bBind := probe.LocalAddr().(*net.UDPAddr)
	assert.NilError(t, probe.Close())

	bTransport, err := udp.Listen(udp.Address{Logical: bLogical, Bind: bBind}, nil)
	assert.NilError(t, err)
	defer bTransport.Close()

	aBook := udp.StaticBook{bLogical: bBind}
	aTransport := listenEphemeral(t, aLogical, aBook)
	defer aTransport.Close()

	err = aTransport.Send(context.Background(), aLogical, bLogical, []byte("ping"))
	assert.NilError(t, err)

	var msgs [][]byte
	deadline := time.Now().Add(2 * time.Second)
	for len(msgs) == 0 && time.Now().Before(deadline) {
		msgs, err = bTransport.RecvInto(bLogical, nil)
		assert.NilError(t, err)
		if len(msgs) == 0 {
			time.Sleep(10 * time.Millisecond)
		}
	}
	assert.Equal(t, len(msgs), 1)
	assert.Equal(t, string(msgs[0]), "ping")
}

func TestRecvIntoRejectsWrongAddress(t *testing.T) {
	logical := swimcore.Address{ID: 1, Port: 0}
	tr := listenEphemeral(t, logical, nil)
	defer tr.Close()

	_, err := tr.RecvInto(swimcore.Address{ID: 99, Port: 0}, nil)
	assert.ErrorContains(t, err, "not")
}

func TestStaticBookResolveMissing(t *testing.T) {
	book := udp.StaticBook{}
	_, err := book.Resolve(swimcore.Address{ID: 5, Port: 0})
	assert.ErrorContains(t, err, "no known endpoint")
}

func TestInjectorForcesSendFailure(t *testing.T) {
	aLogical := swimcore.Address{ID: 1, Port: 0}
	bLogical := swimcore.Address{ID: 2, Port: 0}

	probe, err := net.ListenUDP("udp", nil)
	assert.NilError(t, err)
	bBind := probe.LocalAddr().(*net.UDPAddr)
	assert.NilError(t, probe.Close())

	injector := fault.NewInjector()
	injector.FailOnce("udp.send", assertError("simulated socket failure"))

	bind, err := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	assert.NilError(t, err)
	aBook := udp.StaticBook{bLogical: bBind}
	aTransport, err := udp.Listen(udp.Address{Logical: aLogical, Bind: bind}, aBook, udp.WithInjector(injector))
	assert.NilError(t, err)
	defer aTransport.Close()

	err = aTransport.Send(context.Background(), aLogical, bLogical, []byte("ping"))
	assert.ErrorContains(t, err, "simulated socket failure")

	// Fault was one-shot: the next Send succeeds.
	err = aTransport.Send(context.Background(), aLogical, bLogical, []byte("ping"))
	assert.NilError(t, err)
}

type assertError string

func (e assertError) Error() string { return string(e) }
