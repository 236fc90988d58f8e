// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package bam provides record-level helpers that augment the SAM and BAM
// packages in github.com/grailbio/hts: flag predicates, unclipped alignment
// spans computed from binary or textual CIGARs, and the coordinate type used
// to position iterators.
package bam
