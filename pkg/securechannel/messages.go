package securechannel

// msgKind discriminates the handshake envelope's payload shape. The four
// handshake messages described by the handshake state machine all travel
// as one envelope type so the endpoint's public address — a single
// mailbox — can dispatch on Kind rather than needing one address per
// message shape.
type msgKind uint8

const (
	msgExchange1     msgKind = 0
	msgExchange2     msgKind = 1
	msgIdentityProof msgKind = 2
	msgConfirm       msgKind = 3
)

// handshakeEnvelope is the wire payload of every handshake message.
// Exchange1/Exchange2 use EphemeralPublicKey (and, for Exchange2, Auth);
// IdentityProof uses ContactPublicKey/Identifier/Signature; Confirm carries
// no fields beyond Kind. DecryptAddr is carried on every message so the
// peer learns the route to this endpoint's decryption worker, which is
// never the same address handshake messages are sent to.
type handshakeEnvelope struct {
	Kind               msgKind `cbor:"0,keyasint"`
	EphemeralPublicKey []byte  `cbor:"1,keyasint"`
	Auth               []byte  `cbor:"2,keyasint"`
	ContactPublicKey   []byte  `cbor:"3,keyasint"`
	Identifier         []byte  `cbor:"4,keyasint"`
	Signature          []byte  `cbor:"5,keyasint"`
	DecryptAddrValue   string  `cbor:"6,keyasint"`
}

// cipherEnvelope is the data-plane wire payload: an AEAD-sealed
// TransportMessage plus the nonce it was sealed under, which the decryption
// worker also needs as associated data and as the input to its replay
// check.
type cipherEnvelope struct {
	Nonce      uint64 `cbor:"0,keyasint"`
	Ciphertext []byte `cbor:"1,keyasint"`
}
