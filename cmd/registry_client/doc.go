// Command registry-client deploys and interacts with the on-chain phased
// commitment registry.
//
// The deploy subcommand publishes a new contract from the artifact file and
// makes the deployer its controller. The register and seal subcommands send
// signed transactions and wait for their receipts; phase, commitment and
// count are read-only and need no private key.
//
// Usage example:
//
//	registry-client deploy --rpc-addr http://127.0.0.1:8545 \
//	    --private-key <hex> --treasury 0x... --registration-fee 1000000000000000
//	registry-client register --registry-contract 0x... --commitment <64-char hex>
//	registry-client phase --registry-contract 0x...
package main
