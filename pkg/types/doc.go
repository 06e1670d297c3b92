/*
Package types defines the value types shared across the filesystem engine:
the attribute value domain, the injectable clock interface, and the view and
feature name constants referenced by configuration and the attribute service.

# Attribute values

AttrValue is a sum type over the finite domain of values an AttributeProvider
can store: strings, signed integers, file times, principals, byte arrays,
permission sets, and booleans. setAttribute performs lossless coercion into this domain
(e.g. an int32 widened to Int64Value) and rejects anything else with an
invalid-argument error.

# Clock

FileTimeSource abstracts wall-clock access so tests can inject a fake,
monotonically increasing source instead of depending on real time.
*/
package types
