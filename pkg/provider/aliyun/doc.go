// Package aliyun implements the Provider interface for Alibaba Cloud's
// DashScope text-generation service. It validates parameters against the
// Qwen model family's bounds, translates requests into the DashScope
// envelope (the input/parameters split and the SSE control headers), and
// normalizes both the flat-text and choices response shapes into the
// unified ChatResult schema.
package aliyun
