package uds

// NegativeResponseByte prefixes every negative response (0x7F SID NRC ...).
const NegativeResponseByte byte = 0x7F

// PositiveResponseServiceIdOffset is added to a request's SID to form the
// positive response SID.
const PositiveResponseServiceIdOffset byte = 0x40

// PendingNRC is the "response pending" negative response code. It is never
// terminal: the client keeps waiting with a fresh P2* budget.
const PendingNRC byte = 0x78
