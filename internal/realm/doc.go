// SPDX-License-Identifier: MPL-2.0

// Package realm models the isolated component realms the build engine runs
// in.
//
// A World owns a tree of realms rooted at "platform". Each realm has an
// ordered, de-duplicated list of archive locations, the components it
// provides and explicit imports from sibling realms. Lookups search the realm
// itself, then its imports, then its parent chain, so a realm never sees a
// sibling's components unless it imports them.
//
// Realm layouts are declared in CUE (see Config); the ContextHolder tracks
// which realm is current while the engine runs.
package realm
