// Package services implements the driving ports: the indexing
// pipeline, retrieval, answer composition, settings and index
// administration.
//
// Services hold policy (thresholds, serialisation, supersede rules);
// adapters hold mechanism. Nothing here talks to the network or disk
// except through a driven port.
package services
