// Package network 提供连接监听和数据读写的能力。
//
// 包括两种实现：
//  1. 高性能非阻塞库 netpoll 实现。
//  2. 标准库 standard 实现。
package network
