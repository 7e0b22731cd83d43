// Package txn prepares, submits and waits for transactions.
//
// [PrepareReplacement] turns a proposed transaction into a valid replacement
// for a pending one: same nonce and a gas price at least 10% higher. It
// rejects already mined transactions, nonce changes and explicit prices that
// do not beat the pending price; all rejections match
// [ErrReplacementRejected].
//
// A [GasPriceStrategy] suggests prices. It is consulted by the replacement
// planner, by [FillDefaults] and by [GasPriceStrategyMiddleware], which fills
// the price of eth_sendTransaction calls on their way to the node.
//
// [WaitForReceipt] and [WaitForBlock] poll on an exponential schedule and
// return an rpc.TimeoutExhaustedError when their time budget runs out.
package txn
