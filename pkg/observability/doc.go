/*
Package observability provides tools for monitoring the pivot navigation engine.

Metrics turns navigation step events into Prometheus series, and ComposeHooks lets
several observers share the single LifecycleHooks slot of the engine.
*/
package observability
